// Package model and its sub-packages define the data records shared across
// the pipeline: the canonical command snapshot and the tool service
// contracts.
package model
