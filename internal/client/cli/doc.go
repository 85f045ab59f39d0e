// Package cli provides the interactive vidtube command-line client.
//
// It wires configuration, the local session store, the API service, and an
// interactive REPL. A background watcher pings the server and shows whether
// it is reachable in the prompt.
//
// Commands:
//   - register / login / logout / refresh / passwd
//   - me, channel <username>, history
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
