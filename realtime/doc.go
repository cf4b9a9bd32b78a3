// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes workspace events to connected browsers.

Hub holds WebSocket clients per workspace. Handlers publish through a
Broadcaster after every write:

	pub.Publish(ctx, ev)

With a Redis Bus configured, events go through pub/sub and every instance's
forwarder delivers them to its own hub; without one they go straight to the
local hub. Delivery is best effort and never fails the write that caused it.
*/
package realtime
