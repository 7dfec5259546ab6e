//go:build !(rp2040 || rp2350)

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "panel is firmware; build with tinygo for rp2040/rp2350, or run panelsim on the host")
	os.Exit(1)
}
