package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	Example    string
}

// Registered error codes.
const (
	CodeMissingID      = "F001"
	CodeDuplicateID    = "F002"
	CodeEmptyEventMap  = "F003"
	CodeInvalidBinding = "F004"
	CodeMissingEmitter = "F005"
	CodeStoreNotFound  = "F010"
	CodeReentrant      = "F020"
	CodeHandlerFailed  = "F021"
	CodeConfigInvalid  = "F030"
	CodeConfigRead     = "F031"
)

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Registration Errors (F001-F009)
	// ============================================

	CodeMissingID: {
		Category:   CategoryConfig,
		Message:    "Store identifier missing",
		Detail:     "Every store must report a non-empty identifier. The identifier is the routing key for dispatched actions.",
		Suggestion: "Embed store.Base created with store.NewBase(\"name\").",
		Example:    "type Todos struct{ store.Base }\n\nt := &Todos{Base: store.NewBase(\"todos\")}",
	},
	CodeDuplicateID: {
		Category:   CategoryConfig,
		Message:    "Duplicate store identifier",
		Detail:     "A store with this identifier is already registered. Identifiers must be unique for the lifetime of the registry.",
		Suggestion: "Register each store once, or give the second store a different identifier.",
	},
	CodeEmptyEventMap: {
		Category:   CategoryConfig,
		Message:    "Store declares no events",
		Detail:     "A store must declare at least one event in its EventMap.",
		Example:    "func (t *Todos) EventMap() store.EventMap {\n    return store.EventMap{store.Method(\"add\", \"Add\")}\n}",
	},
	CodeInvalidBinding: {
		Category:   CategoryConfig,
		Message:    "Invalid event binding",
		Detail:     "An event map entry could not be bound to a handler: the event name is empty or repeated, the method does not exist, or its signature is not supported.",
		Suggestion: "Handler methods take (opts T), (ctx context.Context, opts T), (ctx context.Context) or nothing, and return nothing or an error.",
	},
	CodeMissingEmitter: {
		Category:   CategoryConfig,
		Message:    "Store has no emitter",
		Detail:     "The store's Emitter() returned nil, so observers would have nothing to subscribe to.",
		Suggestion: "Create the embedded store.Base with store.NewBase instead of leaving it zero.",
	},

	// ============================================
	// Lookup Errors (F010-F019)
	// ============================================

	CodeStoreNotFound: {
		Category:   CategoryNotFound,
		Message:    "Store not found",
		Detail:     "No store with this identifier has been registered.",
		Suggestion: "Call AddStore before GetStore or GetActions.",
	},

	// ============================================
	// Dispatch Errors (F020-F029)
	// ============================================

	CodeReentrant: {
		Category:   CategoryDispatch,
		Message:    "Cannot dispatch in the middle of a dispatch",
		Detail:     "A handler invoked an action while a broadcast was still running. Broadcasts never nest.",
		Suggestion: "Trigger the follow-up action after the current action returns, or fold the work into the current handler.",
	},
	CodeHandlerFailed: {
		Category: CategoryDispatch,
		Message:  "Store handler failed",
		Detail:   "A store's event handler returned an error. The remaining callbacks of the broadcast did not run.",
	},

	// ============================================
	// CLI Errors (F030-F039)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryCLI,
		Message:  "Invalid configuration",
		Detail:   "The fluxe configuration file failed validation.",
	},
	CodeConfigRead: {
		Category:   CategoryCLI,
		Message:    "Cannot read configuration",
		Detail:     "The fluxe configuration file could not be read or parsed.",
		Suggestion: "Configuration files are fluxe.json or fluxe.yaml.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
