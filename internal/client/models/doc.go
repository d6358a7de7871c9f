// Package models defines the client-side data shapes shared by the console:
// entities held in a collection, the field set of a draft being submitted,
// and the mutation intents applied to a collection.
package models
