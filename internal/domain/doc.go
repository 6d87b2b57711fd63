// Package domain models incidents, the addresses they point at, and the
// commune/region reference data used to render those addresses.
//
// # Ownership
//
// Incidents and addresses live in two independent services. An incident links to
// its address through a plain numeric id (idDireccion); neither service enforces
// that the id exists, and there is no shared transaction between them. Communes
// and regions come from a third, read-only reference service.
//
// # Address id recovery
//
// The address service does not answer POST /addresses consistently. Observed
// shapes:
//
//	"Dirección creada con éxito. ID: 57"   plain or JSON-quoted text with the id
//	"Dirección creada con éxito"           text without an id
//	{"idDireccion": 57} / {"id": "57"}     object, key and value type vary
//	{"data": {"id": 57}}                   object inside an envelope
//
// [AddressIDDecoders] returns the ordered decoder chain for these shapes. When
// no decoder yields a positive id the caller falls back to listing addresses
// (strategy [StrategyListing]). The incident service gets the same treatment
// through [IncidentIDDecoders].
//
// # Display fallbacks
//
// Rendering an incident's location must never fail. [DisplayAddress] always has
// a non-empty street line; any segment that could not be looked up carries one
// of the fallback strings:
//
//	street/address   "Ubicación no disponible"
//	commune          "Comuna no disponible"
//	region           "Región no disponible"   (code "ND")
//
// and is tagged in [Degraded]. Incidents without an address render as
// "Sin dirección".
//
// # Errors
//
// Creation errors ([ValidationError], [AddressResolutionError],
// [IncidentCreationError], [ConfigurationError]) propagate to the caller.
// Lookup failures during enrichment never do; they become fallback data.
// [InvalidArgumentError] marks caller bugs such as a non-positive id.
package domain
