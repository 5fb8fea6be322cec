package plan

import "io"

// errEOF is returned by every operator once its input is exhausted,
// matching the io.EOF convention the iterator package's RowIterator uses.
var errEOF = io.EOF
