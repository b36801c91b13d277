package main

import "github.com/vgrebnev/duolink/cmd"

func main() {
	cmd.Execute()
}
