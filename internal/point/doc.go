// Package point defines the map point data model: the closed set of marked
// object types, geographic locations, point identity, and the canonical
// encoding used to fingerprint a point list.
package point
