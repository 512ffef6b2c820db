// Command rdp-proxy is the demonstration harness around this module's
// sans-I/O protocol core: a cobra CLI with a serve subcommand (runs the
// acceptor + session loop over real TCP, for terminating inbound RDP
// clients) and a connect subcommand (runs the connector + session loop,
// for driving an outbound RDP connection for testing or relaying).
//
// Kept from the teacher's cmd/server, replacing its HTML5/WebSocket
// gateway role (which spoke RDP only as a client, over a browser's
// WebSocket) with direct TCP framing on both sides of the new
// acceptor/connector state machines.
package main

import (
	"fmt"
	"os"

	"github.com/rcarmo/go-rdp/cmd/rdp-proxy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
