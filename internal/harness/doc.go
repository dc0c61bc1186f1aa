// Package harness runs scripted scenarios against a live map feature.
//
// A scenario drives a real mapfeature.Feature over an in-memory store and
// records every state and news item the feature emits. The recording is
// checked against the scenario's expect clause and, in tests, against a
// golden trace.
//
// # Scenario Format
//
//	name: save_point
//	description: "A saved point is echoed back by the store"
//	initial:
//	  - { id: p-1, type: TREE, latitude: 30.2672, longitude: -97.7431 }
//	steps:
//	  - save: { id: p-2, type: HYDRANT, latitude: 30.27, longitude: -97.74 }
//	  - await: { states: 3 }
//	  - show_results: true
//	  - await: { news: 1 }
//	expect:
//	  points: [p-1, p-2]
//	  news: [results]
//
// # Steps
//
// Each step sets exactly one field:
//
//   - push: the remote store delivers a new point list
//   - push_records: the remote store delivers raw JSON records
//   - fail_updates: the remote store fails with a message
//   - save: the user marks a point
//   - show_results: the user asks for the results
//   - fail_next_save: the next save fails with a message
//   - await: wait until the cumulative counts of states and news are reached
//
// # Deterministic Traces
//
// States and news are recorded in the order the feature emits them. Their
// relative interleaving is not, so the trace keeps them in separate lists.
// Steps that race each other must be separated by an await.
package harness
