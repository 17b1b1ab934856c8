// Package httpapi serves the comparison engine and stored run history
// over HTTP with a chi router.
//
//	GET  /healthz                  liveness
//	POST /compare                  compare two base64 captures
//	GET  /runs?limit=N             newest runs first
//	GET  /runs/{id}                one run with its report
//	GET  /runs/{id}/images/{side}  highlighted PNG, side is prev or curr
package httpapi
