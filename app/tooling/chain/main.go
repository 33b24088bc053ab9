// This program is a command line client for the proof of work chain node.
package main

import "github.com/ardanlabs/powchain/app/tooling/chain/cmd"

func main() {
	cmd.Execute()
}
