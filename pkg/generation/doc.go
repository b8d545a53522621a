// Package generation provides a Go SDK for orchestrating AI email template
// generations programmatically.
//
// It exposes the generation lifecycle to embedding applications: starting
// generations subject to the concurrency ceiling, observing their progress
// through registry snapshots, cancelling them, and reconciling the
// generations of an interrupted session on startup.
//
// # Quick Start
//
// Create a client, recover a previous session and start a generation:
//
//	client, err := generation.New(ctx, generation.Config{
//	    BackendURL: "https://api.example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Reconcile generations interrupted by a previous crash or reload.
//	client.Recover(ctx)
//
//	// Observe the full registry state on every change.
//	unsubscribe := client.Subscribe(func(s generation.Snapshot) {
//	    for id, g := range s {
//	        fmt.Println(id, g.Status, g.Step, g.Message)
//	    }
//	})
//	defer unsubscribe()
//
//	id, err := client.Start(ctx, generation.Request{
//	    Prompt:  "A welcome email for new customers",
//	    OwnerID: "user-1",
//	})
//
// At most three generations run concurrently, the fourth Start call fails
// with [ErrCapacityExceeded] without touching the network.
package generation
