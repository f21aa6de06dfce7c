package main

import "github.com/theirongolddev/cgate/cmd"

func main() {
	cmd.Execute()
}
