package validation

// Path and query schemas shared by both entities.
var (
	// Lookup validates the :id path parameter.
	Lookup = Schema{
		{Name: "id", Type: String, Required: true, Format: FormatID},
	}

	// LookupQuery accepts the legacy fromDb flag, which has no effect.
	LookupQuery = Schema{
		{Name: "fromDb", Type: Boolean},
	}

	// SearchQuery validates search criteria.
	SearchQuery = Schema{
		{Name: "keyword", Type: String},
	}
)

var skill = &Field{Type: String, Required: true, MaxLength: 50}

// Role bodies.
var (
	RoleCreate = Schema{
		{Name: "name", Type: String, Required: true, MaxLength: 50},
		{Name: "description", Type: String, MaxLength: 1000},
		{Name: "listOfSkills", Type: Array, Items: skill},
		{Name: "numberOfMembers", Type: Integer, Min: Min(1)},
		{Name: "imageUrl", Type: String, MaxLength: 255, Format: FormatURI},
	}

	RoleUpdate = Schema{
		{Name: "name", Type: String, MaxLength: 50},
		{Name: "description", Type: String, MaxLength: 1000, Nullable: true},
		{Name: "listOfSkills", Type: Array, Items: skill, Nullable: true},
	}
)

// Organization bodies. The logo key keeps its historical spelling.
var (
	OrganizationCreate = Schema{
		{Name: "organizationName", Type: String, Required: true, AllowEmpty: true},
		{Name: "adminEmail", Type: String, MaxLength: 1000},
		{Name: "organizationDisplayName", Type: String, MaxLength: 100},
		{Name: "organiationImageLogo", Type: String, MaxLength: 1000},
	}

	OrganizationUpdate = Schema{
		{Name: "organizationName", Type: String, AllowEmpty: true},
		{Name: "adminEmail", Type: String, MaxLength: 1000},
		{Name: "organizationDisplayName", Type: String, MaxLength: 100},
		{Name: "organiationImageLogo", Type: String, MaxLength: 1000},
		{Name: "listOfSkills", Type: Array, Items: skill, Nullable: true},
	}
)
