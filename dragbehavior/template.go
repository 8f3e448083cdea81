package dragbehavior

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/store"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// Store is the slice of the graph store client template persistence
// needs.
type Store interface {
	AddStatements(ctx context.Context, triples []rdf.Triple) error
	Select(ctx context.Context, query string) (*store.Results, error)
	Codec() *rdf.Codec
}

// SaveTemplate serializes the list into the graph under a named
// template so a later session can restore it. Saving the same name
// twice writes a second template; nothing overwrites.
func SaveTemplate(ctx context.Context, s Store, name string, list *List) (rdf.Resource, error) {
	if name == "" {
		return "", errors.WrapInvalid(errors.ErrInvalidData, "dragbehavior", "SaveTemplate", "template name is required")
	}

	templateRef := rdf.Resource("pxio:" + vocabulary.TemplatePrefix + freshID())
	triples := []rdf.Triple{
		rdf.T(templateRef, vocabulary.RDFType, rdf.Resource(vocabulary.Template)),
		rdf.T(templateRef, vocabulary.Name, name),
	}

	for _, b := range list.All() {
		ref := rdf.Resource("pxio:" + vocabulary.BehaviourPrefix + freshID())
		triples = append(triples,
			rdf.T(ref, vocabulary.RDFType, rdf.Resource(vocabulary.DragBehaviour)),
			rdf.T(ref, vocabulary.SourceType, b.SourceType),
			rdf.T(ref, vocabulary.TargetType, b.TargetType),
			rdf.T(ref, vocabulary.Relation, b.Relation),
			rdf.T(ref, vocabulary.AddText, b.AddText),
			rdf.T(ref, vocabulary.RemoveText, b.RemoveText),
			rdf.T(templateRef, vocabulary.HasBehaviour, ref),
		)
	}

	if err := s.AddStatements(ctx, triples); err != nil {
		return "", errors.Wrap(err, "dragbehavior", "SaveTemplate", "persist template")
	}
	return templateRef, nil
}

// LoadTemplate fetches the behaviors of the named template. Missing
// context-menu texts load as empty strings rather than failing.
func LoadTemplate(ctx context.Context, s Store, name string) ([]Behavior, error) {
	query := fmt.Sprintf(`SELECT ?b ?src ?tgt ?rel ?add ?rem WHERE {
  ?t %[1]s %[2]s ;
     %[3]s %[4]s ;
     %[5]s ?b .
  ?b %[6]s ?src ;
     %[7]s ?tgt ;
     %[8]s ?rel .
  OPTIONAL { ?b %[9]s ?add }
  OPTIONAL { ?b %[10]s ?rem }
}`, vocabulary.RDFType, vocabulary.Template,
		vocabulary.Name, strconv.Quote(name),
		vocabulary.HasBehaviour,
		vocabulary.SourceType, vocabulary.TargetType, vocabulary.Relation,
		vocabulary.AddText, vocabulary.RemoveText)

	results, err := s.Select(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "dragbehavior", "LoadTemplate", "select template behaviors")
	}

	codec := s.Codec()
	behaviors := make([]Behavior, 0, len(results.Rows))
	for _, row := range results.Rows {
		behaviors = append(behaviors, Behavior{
			SourceType: row.Ref(codec, "src"),
			TargetType: row.Ref(codec, "tgt"),
			Relation:   row.Ref(codec, "rel"),
			AddText:    row.Value("add"),
			RemoveText: row.Value("rem"),
		})
	}
	return behaviors, nil
}

func freshID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
