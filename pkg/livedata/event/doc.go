/*
Package event provides the change-notification hub shared by livedata stores
and views.

# Overview

A Hub keeps, per event name, an ordered list of listeners. Trigger calls the
listeners registered for that name first and then the wildcard (Any)
listeners, synchronously and in registration order, passing the caller's
sender id through unchanged.

# Event Names

	add      Items were inserted. Payload.Items holds their ids.
	update   Items changed. Items, OldData, and Data are index-aligned.
	remove   Items were deleted. Items and OldData are index-aligned.
	*        Wildcard. Receives all of the above; cannot be triggered.

# Usage

	var hub event.Hub
	sub := hub.On(event.Any, func(name event.Name, p event.Payload, sender any) {
	    fmt.Println(name, p.Items)
	})
	defer hub.Off(sub)

	_ = hub.Trigger(event.Add, event.Payload{Items: []any{1, 2}}, nil)

# Subscriptions

Go functions cannot be compared, so listeners are removed through the
Subscription returned by On rather than by passing the function again.
Subscriptions can also be paused and resumed.

# Reentrancy

Listeners may mutate the store that triggered them. Each Trigger reads its
listener list once before delivering, so listeners added or removed during a
dispatch only affect later triggers.
*/
package event
