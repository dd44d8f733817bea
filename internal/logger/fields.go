package logger

// Standard field keys for structured logging. Using the same keys across
// all log statements keeps output grep- and aggregation-friendly.
const (
	// Mount execution
	KeyTarget     = "target"      // mount point, e.g. /system
	KeyModule     = "module"      // module ID
	KeyLayers     = "layers"      // layer count of an overlay operation
	KeyPartition  = "partition"   // partition name
	KeyMechanism  = "mechanism"   // overlay or magic
	KeyStagingDir = "staging_dir" // replication staging directory
	KeyCount      = "count"       // generic cardinality

	// HymoFS channel
	KeyCommand = "command" // raw command line sent to the channel
	KeyVersion = "version" // protocol version

	// Generic
	KeyPath  = "path"
	KeyType  = "type"
	KeyError = "error"
)
