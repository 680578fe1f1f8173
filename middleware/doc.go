// Package middleware adapts edgeAuth validation to net/http.
//
// [Guard] reads the Authorization bearer token, calls Validator.Validate and
// stores the accepted token's claims in the request context. It makes no
// decision of its own beyond mapping the verdict to a status code.
package middleware
