/*
Package rest defines the capability contracts of a REST-style resource access layer.

Each capability comes in two roles. The operational role runs against a backing store;
the query role returns the textual query that the operation would run, so callers can log
it, dry-run it or compose it into a larger statement:

	Replacer / ReplaceQuerier    upsert one or many resources
	Retriever / RetrieveQuerier  read one resource, optionally projected
	Updater / UpdateQuerier      apply ordered patches to one resource
	Creator / CreateQuerier      insert resources, never overwrite
	Deleter / DeleteQuerier      remove by identifier or criteria
	Fetcher / FetchQuerier       list or count resources matching criteria

The operational and query roles share method names, so a single type implements one role
only. Backends under datastore/ provide both.

Items are plain maps. Identifiers are opaque; NormalizeID gives them a canonical int64 or
string form so that 10, int32(10) and 10.0 name the same resource.
*/
package rest
