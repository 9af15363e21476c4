package drivers

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantumsheep/dbview/view"
	"github.com/samber/lo"
)

type StepKind int

const (
	StepCreate StepKind = iota
	StepDrop
)

type Step struct {
	Kind StepKind
	View *View
}

func (s Step) String() string {
	if s.Kind == StepDrop {
		return s.View.DropStatement()
	}
	return s.View.Statement()
}

// Plan is the ordered list of statements that brings the views of a
// target database in line with a source database.
type Plan []Step

func (p Plan) String() string {
	var diff strings.Builder
	for _, step := range p {
		fmt.Fprintln(&diff, step.String())
	}
	return strings.TrimSpace(diff.String())
}

// Apply runs every step through builder, stopping at the first failure.
func (p Plan) Apply(ctx context.Context, builder *view.Builder) error {
	for _, step := range p {
		var err error

		switch step.Kind {
		case StepCreate:
			err = builder.CreateViewIn(ctx, false, step.View.quotedSchema(), quoteIdentifier(step.View.Name), step.View.Query)
		case StepDrop:
			err = builder.DropViewIn(ctx, step.View.quotedSchema(), quoteIdentifier(step.View.Name))
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func sameView(a, b *View) bool {
	return a.Schema == b.Schema && a.Name == b.Name
}

func DiffViews(ctx context.Context, source, target Driver) (Plan, error) {
	sourceViews, err := source.GetViews(ctx)
	if err != nil {
		return nil, err
	}

	targetViews, err := target.GetViews(ctx)
	if err != nil {
		return nil, err
	}

	var plan Plan

	// Added or modified views
	for _, sourceView := range sourceViews {
		targetView, found := lo.Find(targetViews, func(v *View) bool {
			return sameView(v, sourceView)
		})

		if !found {
			plan = append(plan, Step{Kind: StepCreate, View: sourceView})
			continue
		}

		if sourceView.Query != targetView.Query {
			plan = append(plan,
				Step{Kind: StepDrop, View: targetView},
				Step{Kind: StepCreate, View: sourceView},
			)
		}
	}

	// Removed views
	for _, targetView := range targetViews {
		found := lo.ContainsBy(sourceViews, func(v *View) bool {
			return sameView(v, targetView)
		})

		if !found {
			plan = append(plan, Step{Kind: StepDrop, View: targetView})
		}
	}

	return plan, nil
}
