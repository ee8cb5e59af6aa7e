package main

import "adminpanel/internal/cmd"

func main() {
	cmd.Execute()
}
