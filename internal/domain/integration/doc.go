// Package integration holds the domain types shared with external catalog vendors.
//
// Vendor payloads are loosely shaped: nested blocks can be missing, null, a single
// object or an array. The types here model every nested block as optional so that
// consumers must choose a default explicitly instead of trusting the payload.
package integration
