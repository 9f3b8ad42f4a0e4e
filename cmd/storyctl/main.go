// Command storyctl manages story-server records from the command line.
package main

import "github.com/euan-reid/story-server/internal/cli"

func main() {
	cli.Execute()
}
