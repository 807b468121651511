package config

const (
	// MaxPageLength caps one page of documents or view rows. Large pages
	// defeat the lazy-loading design and strain the database.
	MaxPageLength = 500

	// MaxFilterParameters caps the parameters of a single filter. More
	// usually indicates a malformed client request.
	MaxFilterParameters = 50

	// MaxFieldValuesPerUpdate caps the fields changed in one PATCH.
	MaxFieldValuesPerUpdate = 200

	// MaxRequestBodyBytes caps a request body. Window requests carry filter
	// parameters and field value maps, nothing near this size.
	MaxRequestBodyBytes = 1 << 20
)
