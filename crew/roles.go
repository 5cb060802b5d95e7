package crew

// 每个角色绑定的 provider 标识, 由装配方映射到具体的 llm.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
)

// 八个研究角色的名称, 同时用作成员 ID 与任务的 AssignedTo.
const (
	RoleCoordinator        = "research_coordinator"
	RoleLiteratureReviewer = "literature_reviewer"
	RoleDataAnalyst        = "data_analyst"
	RoleMethodologyExpert  = "methodology_expert"
	RoleWritingSpecialist  = "writing_specialist"
	RoleCitationExpert     = "citation_expert"
	RoleQualityAssurance   = "quality_assurance"
	RolePresentationExpert = "presentation_expert"
)

// ResearchRoles 返回完整的研究团队角色定义。
// 协调者是层级模式下唯一允许委派的经理角色;
// 温度与 provider 按角色的确定性需求区分（质检最低 0.2, 写作最高 0.7）。
func ResearchRoles() []Role {
	return []Role{
		{
			Name:            RoleCoordinator,
			Description:     "Lead Research Coordinator",
			Goal:            "Orchestrate the entire research process and ensure all components work together seamlessly",
			Backstory:       "Experienced research coordinator with a background in managing complex academic projects",
			Tools:           []string{"academic_search"},
			Provider:        ProviderGemini,
			Temperature:     0.7,
			AllowDelegation: true,
		},
		{
			Name:        RoleLiteratureReviewer,
			Description: "Academic Literature Specialist",
			Goal:        "Conduct comprehensive literature reviews and identify relevant research",
			Backstory:   "PhD in academic research with extensive experience in literature analysis",
			Tools:       []string{"academic_search", "literature_review"},
			Provider:    ProviderOpenRouter,
			Temperature: 0.5,
		},
		{
			Name:        RoleDataAnalyst,
			Description: "Data Science and Statistics Expert",
			Goal:        "Analyze research data and provide statistical insights",
			Backstory:   "Data scientist with a focus on academic research methodologies",
			Tools:       []string{"data_visualization"},
			Provider:    ProviderGemini,
			Temperature: 0.3,
		},
		{
			Name:        RoleMethodologyExpert,
			Description: "Research Methodology Consultant",
			Goal:        "Design robust research methodologies and validate approaches",
			Backstory:   "Methodology consultant with expertise in various research frameworks",
			Provider:    ProviderOpenRouter,
			Temperature: 0.5,
		},
		{
			Name:        RoleWritingSpecialist,
			Description: "Academic Writing Expert",
			Goal:        "Write and edit the research paper with proper academic style and structure",
			Backstory:   "Professional academic writer with Harvard-level experience",
			Provider:    ProviderGemini,
			Temperature: 0.7,
		},
		{
			Name:        RoleCitationExpert,
			Description: "Citation and Reference Specialist",
			Goal:        "Ensure all citations and references follow proper academic standards",
			Backstory:   "Reference management specialist with experience in various citation styles",
			Tools:       []string{"citation_check"},
			Provider:    ProviderOpenRouter,
			Temperature: 0.3,
		},
		{
			Name:        RoleQualityAssurance,
			Description: "Quality Control Specialist",
			Goal:        "Review and validate all aspects of the research paper for quality and accuracy",
			Backstory:   "Quality assurance expert with a keen eye for detail in academic work",
			Tools:       []string{"plagiarism_check"},
			Provider:    ProviderGemini,
			Temperature: 0.2,
		},
		{
			Name:        RolePresentationExpert,
			Description: "Presentation and Visualization Specialist",
			Goal:        "Create compelling PowerPoint presentations based on the research findings",
			Backstory:   "Professional presentation designer with experience in academic conferences",
			Tools:       []string{"presentation", "visual_design", "data_visualization"},
			Provider:    ProviderOpenRouter,
			Temperature: 0.7,
		},
	}
}

// RoleByName 在角色列表中查找指定名称的角色.
func RoleByName(roles []Role, name string) (Role, bool) {
	for _, r := range roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}
