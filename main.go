package main

import "github.com/specter-ci/specter/cmd"

func main() {
	cmd.Execute()
}
