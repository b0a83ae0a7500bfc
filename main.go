package main

import "file-storage/cmd"

func main() {
	cmd.Execute()
}
