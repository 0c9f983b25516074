// Package catalog provides the model catalog: static descriptors for every
// backend model the gateway can route to, including per-token pricing,
// capability flags, and region availability.
//
// The catalog ships with a built-in set of models and can be extended or
// overridden from a YAML file. A file watcher supports hot reload so pricing
// updates do not require a restart. Request paths treat the catalog as
// read-only; reloads swap the data atomically behind a lock.
package catalog
