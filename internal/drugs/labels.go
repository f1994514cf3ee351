package drugs

import (
	"context"
	"fmt"
	"strings"

	"rxmcp/internal/cache"
	"rxmcp/internal/search"
	"rxmcp/internal/upstream"
)

// GetMedicationProfile fetches and summarizes the FDA label of a drug
func (s *Service) GetMedicationProfile(ctx context.Context, args ProfileArgs) (*ProfileResult, error) {
	name, err := requireName("drug_identifier", args.DrugIdentifier)
	if err != nil {
		return nil, err
	}
	args.DrugIdentifier = name

	args.IdentifierType = strings.ToLower(strings.TrimSpace(args.IdentifierType))
	switch args.IdentifierType {
	case "":
		args.IdentifierType = search.IdentifierAny
	case search.IdentifierAny, search.IdentifierGeneric, search.IdentifierBrand:
	default:
		return nil, fmt.Errorf("%w: identifier_type must be one of any, generic, brand", ErrInvalidArgument)
	}

	return cached(ctx, s, "get_medication_profile", cache.CategoryLabel, args, func(ctx context.Context) (*ProfileResult, error) {
		strategies := search.LabelStrategies(name, args.IdentifierType)
		res, err := s.resolve(ctx, "labels", upstream.EndpointLabel, strategies, 1)
		if err != nil {
			return nil, err
		}

		out := &ProfileResult{
			Meta: s.meta(res, SourceLabels, []string{
				fmt.Sprintf("No FDA label matched %q", name),
				"Try identifier_type 'any', or switch between the brand and generic name",
				"Check the spelling and remove strength or dosage-form words",
			}),
			DrugIdentifier: name,
			IdentifierType: args.IdentifierType,
		}
		if !res.Found {
			return out, nil
		}

		labels := upstream.Decode[upstream.LabelRecord](res.Page)
		if len(labels) > 0 {
			out.Profile = s.summarizeLabel(labels[0])
		}
		return out, nil
	})
}

func (s *Service) summarizeLabel(rec upstream.LabelRecord) *Profile {
	limit := s.opts.MaxSectionLength
	p := &Profile{
		EffectiveTime:   rec.EffectiveTime,
		SetID:           rec.SetID,
		HasBoxedWarning: len(rec.BoxedWarning) > 0,
		Sections: LabelSections{
			BoxedWarning:             section(rec.BoxedWarning, limit),
			IndicationsAndUsage:      section(rec.IndicationsAndUsage, limit),
			DosageAndAdministration:  section(rec.DosageAndAdministration, limit),
			DosageFormsAndStrengths:  section(rec.DosageFormsAndStrengths, limit),
			Contraindications:        section(rec.Contraindications, limit),
			Warnings:                 section(firstNonEmpty(rec.WarningsAndCautions, rec.Warnings), limit),
			AdverseReactions:         section(rec.AdverseReactions, limit),
			DrugInteractions:         section(rec.DrugInteractions, limit),
			UseInSpecificPopulations: section(firstNonEmpty(rec.UseInSpecificPopulations, rec.Pregnancy), limit),
			MechanismOfAction:        section(rec.MechanismOfAction, limit),
			StorageAndHandling:       section(rec.StorageAndHandling, limit),
		},
	}
	if o := rec.OpenFDA; o != nil {
		p.BrandNames = o.BrandName
		p.GenericNames = o.GenericName
		p.SubstanceNames = o.SubstanceName
		p.Manufacturers = o.ManufacturerName
		p.Routes = o.Route
		p.ProductTypes = o.ProductType
		p.PharmClasses = o.PharmClassEPC
	}
	return p
}
