// Command ontap queries the ontap.pl beer catalog from the shell or serves
// the same queries over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
