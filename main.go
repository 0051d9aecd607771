package main

import "rpgm-translator/cmd"

func main() {
	cmd.Execute()
}
