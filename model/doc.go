// Package model defines the ledger boundary types shared by the client packages.
//
// Representation identity (canonical bytes and identifiers) is computed by package
// canonical; these structs only carry values and are the types intended for direct
// JSON serialization on the wire and in persistent storage.
package model
