// Package modelpath defines the dotted-identifier addresses used to locate
// nodes in the model graph.
//
// A model path is a sequence of identifier segments joined by '.'. Each
// segment starts with an ASCII letter or underscore and continues with
// letters, digits, or underscores. The empty string is never a valid path
// when declared explicitly; the registry itself is addressed by the hidden
// root path.
package modelpath
