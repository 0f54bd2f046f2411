package textgen

// SplitEndpoint exposes splitEndpoint to the external test package.
var SplitEndpoint = splitEndpoint
