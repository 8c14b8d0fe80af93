package evaluation

import (
	"github.com/painelsaude/painel/internal/domain/scoring"
)

// ScorePatch is a typed set of optional domain scores for one instrument.
// On create every required domain must be present; on update only the
// provided fields replace the stored ones.
type ScorePatch = scoring.Submission

type (
	IVCFPatch     = scoring.IVCFSubmission
	FACTFPatch    = scoring.FACTFSubmission
	ActivityPatch = scoring.ActivitySubmission
)
