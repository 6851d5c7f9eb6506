// Package bridge turns inline queries into blockchain lookups and answers.
//
// The pipeline per query is Parse -> Handler.Handle -> Format -> answer.
// Parse and Format are pure; Handle is the only step that talks to the chain.
// Loop drives the pipeline one update at a time, so answers go out in the
// order the queries arrived.
package bridge
