package main

import "stuffbox-backend/cmd"

func main() {
	cmd.Execute()
}
