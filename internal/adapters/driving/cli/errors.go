package cli

import "errors"

var (
	errNoDocuments = errors.New("document service not configured")
	errNoProjects  = errors.New("project service not configured")
	errNoSearch    = errors.New("search service not configured")
	errNoImport    = errors.New("import service not configured")
)
