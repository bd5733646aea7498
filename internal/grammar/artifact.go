package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/nlquery/internal/qerrors"
)

// artifactDoc mirrors the grammar artifact format on disk: a key-value
// document with a `grammar` map of nonterminal name -> rule list, a
// `semantics` map of function name -> definition, a start symbol, and an
// entity category table. Grounded on internal/tqw's topLevelWorldData /
// TOML-manifest decoding style (BurntSushi/toml.Decode into a typed doc,
// then translate into the domain model).
type artifactDoc struct {
	StartSymbol      string                     `toml:"start_symbol"`
	Grammar          map[string][]ruleDoc       `toml:"grammar"`
	Semantics        map[string]semanticDefDoc  `toml:"semantics"`
	EntityCategories map[string][]entityDoc     `toml:"entity_categories"`
}

type ruleDoc struct {
	IsTerminal       bool             `toml:"is_terminal"`
	IsPlaceholder    bool             `toml:"is_placeholder"`
	TokenWidth       int              `toml:"token_width"`
	RHS              []string         `toml:"rhs"`
	Cost             float64          `toml:"cost"`
	Text             *toml.Primitive  `toml:"text"`
	Semantic         *semanticRefDoc  `toml:"semantic"`
	InsertedSemantic *semanticRefDoc  `toml:"inserted_semantic"`
	SemanticIsRHS    bool             `toml:"semantic_is_rhs"`
	InsertionIndex   *int             `toml:"insertion_index"`
	IsTransposition  bool             `toml:"is_transposition"`
	GramProps        *gramPropsDoc    `toml:"gram_props"`
}

type semanticRefDoc struct {
	Func string `toml:"func"`
	Name string `toml:"name"`
}

type gramPropsDoc struct {
	VerbForm            string `toml:"verb_form"`
	PersonNumber        string `toml:"person_number"`
	GrammaticalCase     string `toml:"grammatical_case"`
	AcceptPastAsPresent bool   `toml:"accept_past_as_present"`
	NoPresentPerfect    bool   `toml:"no_present_perfect"`
}

type semanticDefDoc struct {
	Cost            float64 `toml:"cost"`
	MinParams       int     `toml:"min_params"`
	MaxParams       int     `toml:"max_params"`
	ForbidsMultiple bool    `toml:"forbids_multiple"`
	IsArg           bool    `toml:"is_arg"`
	Anaphoric       bool    `toml:"anaphoric"`
	Commutative     bool    `toml:"commutative"`
}

type entityDoc struct {
	Canonical string   `toml:"canonical"`
	Names     []string `toml:"names"`
}

// Load reads a grammar artifact from a TOML document and resolves it into an
// immutable Grammar: every rule's semantic reference is resolved against the
// function table, and argument-leaf objects are shared by name.
func Load(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qerrors.WrapFatal(err, "grammar load error", "reading artifact file "+path)
	}
	return LoadBytes(data)
}

// LoadBytes is Load without the filesystem read, exposed so callers that
// already hold the artifact bytes (the engine facade, which also hashes them
// with ContentHash for the compiled-automaton cache) and tests can exercise
// parsing directly.
func LoadBytes(data []byte) (*Grammar, error) {
	var doc artifactDoc
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, qerrors.WrapFatal(err, "grammar load error", "parsing TOML artifact")
	}
	_ = md

	g := &Grammar{
		Symbols:          make(map[string]*Symbol),
		Rules:            make(map[string][]*Rule),
		Semantics:        make(map[string]*SemanticDef),
		Start:            doc.StartSymbol,
		EntityCategories: make(map[string][]EntityRecord),
	}

	// semantics table first, so rule resolution below can look functions up.
	for name, sd := range doc.Semantics {
		g.Semantics[name] = &SemanticDef{
			Name:            name,
			Cost:            sd.Cost,
			MinParams:       sd.MinParams,
			MaxParams:       sd.MaxParams,
			ForbidsMultiple: sd.ForbidsMultiple,
			IsArg:           sd.IsArg,
			Anaphoric:       sd.Anaphoric,
			Commutative:     sd.Commutative,
		}
	}

	// shared argument-leaf objects: a leaf semantic ref with the same Name
	// must be the exact same *SemanticRef value across every rule that uses
	// it.
	leaves := make(map[string]*SemanticRef)
	resolveRef := func(rd *semanticRefDoc, lhs string) (*SemanticRef, error) {
		if rd == nil {
			return nil, nil
		}
		if rd.Func != "" {
			fn, ok := g.Semantics[rd.Func]
			if !ok {
				return nil, qerrors.Fatal("grammar load error", fmt.Sprintf("rule %q references unknown semantic function %q", lhs, rd.Func))
			}
			return &SemanticRef{Func: fn}, nil
		}
		if leaf, ok := leaves[rd.Name]; ok {
			return leaf, nil
		}
		leaf := &SemanticRef{Name: rd.Name}
		if def, ok := g.Semantics[rd.Name]; ok && def.IsArg {
			leaf.ArgDef = def
		}
		leaves[rd.Name] = leaf
		return leaf, nil
	}

	for lhs, rules := range doc.Grammar {
		g.SymbolFor(lhs)
		for _, rd := range rules {
			rhs := append([]string(nil), rd.RHS...)
			for _, sym := range rhs {
				s := g.SymbolFor(sym)
				if rd.IsTerminal && len(rhs) == 1 {
					s.Terminal = true
					if rd.IsPlaceholder {
						s.Placeholder = true
					}
					if rd.TokenWidth > 1 {
						s.TokenWidth = rd.TokenWidth
					} else {
						s.TokenWidth = 1
					}
				}
			}

			props := RuleProps{
				Cost:            rd.Cost,
				SemanticIsRHS:   rd.SemanticIsRHS,
				InsertionIndex:  rd.InsertionIndex,
				IsTransposition: rd.IsTransposition,
			}

			if rd.Text != nil {
				txt, err := decodeText(md, *rd.Text)
				if err != nil {
					return nil, qerrors.WrapFatal(err, "grammar load error", fmt.Sprintf("rule %q has malformed text", lhs))
				}
				props.Text = txt
			}

			sem, err := resolveRef(rd.Semantic, lhs)
			if err != nil {
				return nil, err
			}
			props.Semantic = sem

			insSem, err := resolveRef(rd.InsertedSemantic, lhs)
			if err != nil {
				return nil, err
			}
			props.InsertedSemantic = insSem

			if rd.GramProps != nil {
				props.GramProps = &GramProps{
					VerbForm:            VerbForm(rd.GramProps.VerbForm),
					PersonNumber:        PersonNumber(rd.GramProps.PersonNumber),
					GrammaticalCase:     GrammaticalCase(rd.GramProps.GrammaticalCase),
					AcceptPastAsPresent: rd.GramProps.AcceptPastAsPresent,
					NoPresentPerfect:    rd.GramProps.NoPresentPerfect,
				}
			}

			g.Rules[lhs] = append(g.Rules[lhs], &Rule{LHS: lhs, RHS: rhs, Props: props})
		}
	}

	for cat, recs := range doc.EntityCategories {
		g.SymbolFor(cat).Placeholder = true
		g.SymbolFor(cat).Terminal = true
		for _, rd := range recs {
			g.EntityCategories[cat] = append(g.EntityCategories[cat], EntityRecord{
				Canonical: rd.Canonical,
				Names:     rd.Names,
			})
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// decodeText decodes a TOML `text` value, which may be a plain string, a
// table of form-key -> surface string, or an array mixing both.
func decodeText(md toml.MetaData, prim toml.Primitive) (Text, error) {
	var asString string
	if err := md.PrimitiveDecode(prim, &asString); err == nil {
		return Text{Kind: TextPlain, Plain: asString}, nil
	}

	var asTable map[string]string
	if err := md.PrimitiveDecode(prim, &asTable); err == nil {
		return Text{Kind: TextInflected, Inflected: asTable}, nil
	}

	var asSeq []toml.Primitive
	if err := md.PrimitiveDecode(prim, &asSeq); err == nil {
		seq := make([]Text, 0, len(asSeq))
		for _, sub := range asSeq {
			t, err := decodeText(md, sub)
			if err != nil {
				return Text{}, err
			}
			seq = append(seq, t)
		}
		return Text{Kind: TextSequence, Sequence: seq}, nil
	}

	return Text{}, fmt.Errorf("text value is neither a string, a table, nor an array of either")
}

// ContentHash returns a stable hash of the raw artifact bytes, used as the
// cache key for the compiled-automaton cache (see automaton.Cache).
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
