package schema

import "github.com/mbj/siteapi/internal/domain/entities"

var postsSchema = CollectionSchema{
	Resource: entities.ResourcePosts,
	Record: RecordSchema{
		NotObject: "each post must be an object",
		Fields: []Field{
			{Name: "id", Kind: KindNumber, Message: "post.id must be number"},
			{Name: "title", Kind: KindString, Message: "post.title must be string"},
			{Name: "excerpt", Kind: KindString, Message: "post.excerpt must be string"},
			{Name: "content", Kind: KindString, Message: "post.content must be string"},
			{Name: "category", Kind: KindString, Message: "post.category must be string"},
		},
	},
}

var projectsSchema = CollectionSchema{
	Resource: entities.ResourceProjects,
	Record: RecordSchema{
		NotObject: "each project must be an object",
		Fields: []Field{
			{Name: "title", Kind: KindString, Message: "project.title must be string"},
			{Name: "description", Kind: KindString, Message: "project.description must be string"},
			{Name: "category", Kind: KindString, Message: "project.category must be string"},
		},
	},
}

var techSchema = CollectionSchema{
	Resource: entities.ResourceTech,
	Record: RecordSchema{
		NotObject: "each tech category must be an object",
		Fields: []Field{
			{Name: "title", Kind: KindString, Message: "category.title must be string"},
		},
		Nested: &NestedList{
			Field:    "items",
			NotArray: "category.items must be array",
			Item: RecordSchema{
				NotObject: "each tech item must be object",
				Fields: []Field{
					{Name: "label", Kind: KindString, Message: "tech item.label must be string"},
				},
			},
		},
	},
}

// ValidatePosts validates a candidate posts array.
func ValidatePosts(payload []byte) error { return postsSchema.Validate(payload) }

// ValidateProjects validates a candidate projects array.
func ValidateProjects(payload []byte) error { return projectsSchema.Validate(payload) }

// ValidateTech validates a candidate tech array, including each category's items.
func ValidateTech(payload []byte) error { return techSchema.Validate(payload) }

// ValidatorFor returns the validator registered for key.
func ValidatorFor(key entities.ResourceKey) (Validator, error) {
	switch key {
	case entities.ResourcePosts:
		return ValidatePosts, nil
	case entities.ResourceProjects:
		return ValidateProjects, nil
	case entities.ResourceTech:
		return ValidateTech, nil
	}
	return nil, &entities.UnknownResourceError{Key: string(key)}
}
