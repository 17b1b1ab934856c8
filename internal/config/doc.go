// Package config loads runtime settings for the visual diff tools.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file
//  3. VISUAL_DIFF_* environment variables
//
// Example file:
//
//	engine:
//	  lpips_thresh: 0.04
//	  clip_thresh: 0.96
//	  matcher: fingerprint
//	scoring:
//	  distance:
//	    backend: http
//	    url: http://localhost:9000/lpips
//	    timeout: 20s
//	store:
//	  driver: files
//	  path: ./baseline
package config
