// Package vocabulary defines the reserved identifiers of the graph-ical
// ontology: the event-log vocabulary, the workspace domain types and
// predicates, and the namespace prefix table.
//
// The event vocabulary local names (Event, time, isLocal, ...) are part
// of the wire contract with existing repository content and must not be
// renamed.
package vocabulary

// Namespace IRIs for the prefix table.
const (
	PxioNamespace = "http://www.pxio.de/ontology#"
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// Prefixes returns the default prefix table for a repository connection.
// Callers may extend it per repository via configuration.
func Prefixes() map[string]string {
	return map[string]string{
		"pxio": PxioNamespace,
		"rdf":  RDFNamespace,
		"rdfs": RDFSNamespace,
		"owl":  OWLNamespace,
		"xsd":  XSDNamespace,
	}
}

// RDF core terms.
const (
	RDFType = "rdf:type"
)

// Event vocabulary. Every event triple uses these identifiers; content
// queries exclude subjects typed EventType.
const (
	EventType     = "pxio:Event"
	Time          = "pxio:time"
	IsLocal       = "pxio:isLocal"
	IsForInstance = "pxio:isForInstance"
	IsAdded       = "pxio:isAdded"
	IsFor         = "pxio:isFor"
	HasType       = "pxio:hasType"
	IsForSubject  = "pxio:isForSubject"
	IsForObject   = "pxio:isForObject"
)

// Workspace domain types.
const (
	User           = "pxio:User"
	Group          = "pxio:Group"
	Display        = "pxio:Display"
	DisplayGroup   = "pxio:DisplayGroup"
	DisplayInGroup = "pxio:DisplayInGroup"
	Source         = "pxio:Source"
	Template       = "pxio:Template"
	DragBehaviour  = "pxio:DragBehaviour"
)

// Attribute predicates.
const (
	Name      = "pxio:name"
	FirstName = "pxio:firstName"
	LastName  = "pxio:lastName"
	IsFrom    = "pxio:isFrom"
	BelongsTo = "pxio:belongsTo"
	X         = "pxio:x"
	Y         = "pxio:y"
	Z         = "pxio:z"
	Width     = "pxio:width"
	Height    = "pxio:height"
)

// Relation predicates.
const (
	MemberOf    = "pxio:memberOf"
	IsIn        = "pxio:isIn"
	Projects    = "pxio:projects"
	DisplayedOn = "pxio:displayedOn"
)

// Drag behavior / template predicates.
const (
	HasBehaviour = "pxio:hasBehaviour"
	SourceType   = "pxio:sourceType"
	TargetType   = "pxio:targetType"
	Relation     = "pxio:relation"
	AddText      = "pxio:addText"
	RemoveText   = "pxio:removeText"
)

// Instance identifier prefixes. Fresh subjects are allocated under the
// prefix matching the kind of entity being created; event instances live
// under EventPrefix, which keeps them disjoint from content by name as
// well as by type.
const (
	UserPrefix           = "users_"
	GroupPrefix          = "group_"
	DisplayPrefix        = "d_"
	DisplayGroupPrefix   = "dg_"
	DisplayInGroupPrefix = "dig_"
	SourcePrefix         = "src_"
	EventPrefix          = "event_"
	TemplatePrefix       = "template_"
	BehaviourPrefix      = "behaviour_"
)
