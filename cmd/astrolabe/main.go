// Command astrolabe computes astrological charts from the command line and
// serves them over HTTP.
package main

import "github.com/papapumpkin/astrolabe/cmd"

func main() {
	cmd.Execute()
}
