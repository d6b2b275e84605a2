// Package shape runs declarative record pipelines ("profiles") built from the
// reshape primitives.
//
// A profile document is YAML (JSON works too):
//
//	profiles:
//	  - name: client.create
//	    required: [name, phone]
//	    nested:
//	      - field: address
//	        profile: address.create
//	    decode: {responsible: id}
//	    newFields:
//	      - name: created_at
//	        generate: now
//	      - name: fullName
//	        refs: [firstName, lastName]
//	        position: 0
//	    delete: [password]
//	    optional: [email]
//
// Documents are checked against an embedded JSON Schema before use. A
// Registry holds the current Set of profiles and a Watcher keeps it in sync
// with a file. Engine applies profiles with logging, metrics and tracing.
package shape
