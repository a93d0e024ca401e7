// Package apicommon provides common types, constants, and helper functions for the API.
package apicommon

// MaxBodyBytes bounds the size of every request body, webhook deliveries
// included.
const MaxBodyBytes = int64(65536)
