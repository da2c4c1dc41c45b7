package main

import "github.com/Togather-Foundation/booking/cmd/server/cmd"

func main() {
	cmd.Execute()
}
