// Package todo holds the task store, its ordering helpers, and the adapter
// that persists it.
//
// The whole store is saved as one JSON blob under a single storage key:
//
//	{
//	  "tasks": {
//	    "3f9a1c0d7e2b4a11": {
//	      "id": "3f9a1c0d7e2b4a11",
//	      "description": "Buy milk",
//	      "complete": false,
//	      "createdAt": 1714558200000,
//	      "dueAt": "2024-05-03 18:00"
//	    }
//	  }
//	}
//
// # Invariants
//
//   - every key in "tasks" equals the "id" of its value
//   - createdAt is epoch milliseconds, set once when the task is created
//   - dueAt is free text; an empty string means no due date
//
// There is no schema version field. Changing the shape is a breaking change.
//
// # File Format
//
// Saved blobs use 2-space indentation and a trailing newline.
package todo
