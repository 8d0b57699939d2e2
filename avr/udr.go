package avr

import (
	"bufio"
	"os"
)

// stdoutWriter backs UDR's stdout passthrough, buffered the way the
// teacher's VM buffers its own stdout writer.
var stdoutWriter = bufio.NewWriter(os.Stdout)
