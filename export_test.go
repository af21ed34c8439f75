package alfred

var (
	CtxWithLogger       = ctxWithLogger
	IsPlanningStep      = isPlanningStep
	BuildPlanningPrompt = buildPlanningPrompt
)
