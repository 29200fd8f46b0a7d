/*
Package livedata provides in-memory, observable collections of keyed items.

# Overview

A Store holds items (map[string]any values) keyed by an id field. Every
mutation fires add, update, or remove events that listeners can follow. A
View is a filtered, read-only window onto a Store or onto another View; it
keeps its membership in sync by listening to its upstream.

	tasks, err := livedata.New([]livedata.Item{
	    {"id": 1, "title": "write docs", "done": false},
	    {"id": 2, "title": "ship", "done": true},
	})
	if err != nil {
	    log.Fatal(err)
	}

	open, err := livedata.NewView(tasks, livedata.WithViewFilter(func(it livedata.Item) bool {
	    return it["done"] == false
	}))
	if err != nil {
	    log.Fatal(err)
	}

	open.On(event.Remove, func(_ event.Name, p event.Payload, _ any) {
	    fmt.Println("closed:", p.Items)
	})

	_, _ = tasks.Update(livedata.Item{"id": 1, "done": true}, nil) // closed: [1]

# Identity

Items without an id receive a random UUID string on insert. Numeric ids are
normalized so that 1, int64(1), and 1.0 address the same item. The id field
defaults to "id" and is set with WithFieldID.

# Mutations

	Add         insert; every id must be new
	Update      insert or shallow-merge
	UpdateOnly  deep-merge; every id must exist
	Remove      delete by id or by item
	Clear       delete everything

Add and UpdateOnly are all-or-nothing: when any entry fails, the store is
left unchanged. Each mutation takes an optional sender id that is passed to
listeners unchanged.

# Queries

Reads return copies. They accept QueryOptions:

	items, err := tasks.GetAll(
	    livedata.WithFilter(func(it livedata.Item) bool { return it["done"] == false }),
	    livedata.WithOrder("title"),
	    livedata.WithFields("id", "title"),
	)

Filters can also be written as expressions, see FilterExpr and the expr
subpackage.

# Queueing

WithQueue (or SetQueue) defers Add, Update, and Remove until the queue is
flushed, either explicitly, after a quiet period, or once a number of calls
have piled up. Queued mutations return nil ids.

# Configuration

OptionsFromConfig and ViewOptionsFromConfig build options from a config
section loaded from YAML, JSON, or TOML.

# Errors

	var dup *livedata.DuplicateIDError
	if errors.As(err, &dup) {
	    log.Printf("id %v already exists", dup.ID)
	}

Typed errors unwrap to sentinels (ErrDuplicateID, ErrUpdateNonexistentItem)
so errors.Is works too.

# Thread Safety

Store and View are safe for concurrent use. Events are delivered
synchronously on the goroutine that made the change, after the store's lock
is released, so listeners may read from or write to the store.

# Subpackages

  - event: event hub and subscriptions
  - queue: deferred method calls
  - stream: lazy iteration over items
  - pipe: forwarding changes between stores
  - convert, merge: value coercion and deep merging
  - expr, config: filter expressions and configuration loading
  - observability: logging, metrics, and tracing helpers
*/
package livedata
