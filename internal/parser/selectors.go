package parser

// Default selector chains for the post feed markup. The feed ships several
// generations of class names at once, so each field lists the narrow,
// current pattern first and the broad legacy pattern last.

// DefaultAuthorChain: actor name span, then any app-aware link.
// The link rule also matches mentions and hashtags inside the post body,
// so it must stay last.
func DefaultAuthorChain() Chain {
	return Chain{
		&ClassRule{Tag: "span", Classes: []string{"update-components-actor__name", "feed-shared-actor__name"}},
		&ClassRule{Tag: "a", Classes: []string{"app-aware-link"}},
	}
}

// DefaultContentChain: update text containers, then the generic break-words span.
func DefaultContentChain() Chain {
	return Chain{
		&ClassRule{Tag: "div", Classes: []string{"feed-shared-update-v2__description-wrapper", "feed-shared-text"}},
		&ClassRule{Tag: "span", Classes: []string{"feed-shared-text"}},
		&ClassRule{Tag: "div", Classes: []string{"update-components-text"}},
		&ClassRule{Tag: "span", Classes: []string{"break-words"}},
	}
}

// DefaultTimestampChain: semantic time element, then the actor sub-description.
func DefaultTimestampChain() Chain {
	return Chain{
		&ClassRule{Tag: "time"},
		&ClassRule{Tag: "span", Classes: []string{"feed-shared-actor__sub-description", "update-components-actor__sub-description"}},
	}
}

// DefaultContainerChain locates post containers. The description wrapper
// is last because it holds only the post text and never the author.
func DefaultContainerChain() Chain {
	return Chain{
		&ClassRule{Tag: "div", Classes: []string{"feed-shared-update-v2", "occludable-update"}},
		&AttrRule{Tag: "div", Attr: "data-urn"},
		&ClassRule{Tag: "div", Classes: []string{"relative feed-shared-update-v2--e2e artdeco-card"}},
		&ClassRule{Tag: "article", Classes: []string{"relative ember-view"}},
		&ClassRule{Tag: "div", Classes: []string{"feed-shared-update-v2__description-wrapper"}},
	}
}
