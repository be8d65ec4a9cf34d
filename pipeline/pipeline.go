// Package pipeline provides ready-made agent compositions: a sequential
// blog pipeline, a parallel research system, a critique/refine loop and a
// tool-delegating research coordinator. They double as living documentation
// for how the composers combine.
package pipeline

import (
	"github.com/agentweave/agentweave/agent"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/model"
	"github.com/agentweave/agentweave/tool"
)

// NewBlogPipeline builds a three-stage sequential pipeline: outline, draft,
// edit. Each stage reads its predecessor's output key from shared state.
func NewBlogPipeline(m model.Model) *agent.SequentialAgent {
	outline := agent.NewModelAgent("OutlineAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Create a blog outline for the given topic with:\n" +
				"1. A catchy headline\n" +
				"2. An introduction hook\n" +
				"3. 3-5 main sections with 2-3 bullet points for each\n" +
				"4. A concluding thought")
		o.OutputKey = "blog_outline"
	})

	writer := agent.NewModelAgent("WriterAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Following this outline strictly: {blog_outline}\n" +
				"Write a brief, 200 to 300-word blog post with an engaging and informative tone.")
		o.OutputKey = "blog_draft"
	})

	editor := agent.NewModelAgent("EditorAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Edit this draft: {blog_draft}\n" +
				"Your task is to polish the text by fixing any grammatical errors, " +
				"improving the flow and sentence structure, and enhancing overall clarity.")
		o.OutputKey = "final_blog"
	})

	return agent.NewSequentialAgent("BlogPipeline", outline, writer, editor)
}

// NewResearchSystem builds a fan-out/fan-in composition: three researchers
// run in parallel on isolated branches, then a summarizer merges their
// distinct output keys into an executive summary.
func NewResearchSystem(m model.Model) *agent.SequentialAgent {
	tech := agent.NewModelAgent("TechResearcher", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Research the latest AI/ML trends. Include 3 key developments, the main companies " +
				"involved, and the potential impact. Keep the report very concise (100 words).")
		o.OutputKey = "tech_research"
	})

	health := agent.NewModelAgent("HealthResearcher", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Research recent medical breakthroughs. Include 3 significant advances, their " +
				"practical applications, and estimated timelines. Keep the report concise (100 words).")
		o.OutputKey = "health_research"
	})

	finance := agent.NewModelAgent("FinanceResearcher", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Research current fintech trends. Include 3 key trends, their market implications, " +
				"and the future outlook. Keep the report concise (100 words).")
		o.OutputKey = "finance_research"
	})

	summarizer := agent.NewModelAgent("AggregatorAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Combine these three research findings into a single executive summary:\n\n" +
				"**Technology Trends:**\n{tech_research}\n\n" +
				"**Health Breakthroughs:**\n{health_research}\n\n" +
				"**Finance Innovations:**\n{finance_research}\n\n" +
				"Your summary should highlight common themes, surprising connections, and the most " +
				"important key takeaways from all three reports. The final summary should be around 200 words.")
		o.OutputKey = "executive_summary"
	})

	team := agent.NewParallelAgent("ParallelResearchTeam", tech, health, finance)

	return agent.NewSequentialAgent("ResearchSystem", team, summarizer)
}

// NewStoryRefinementLoop builds a writer followed by a critique/refine loop.
// The critic approves with the exact phrase "APPROVED"; the refiner calls
// the exit_loop tool when it sees that phrase, which escalates and ends the
// loop before the iteration cap.
func NewStoryRefinementLoop(m model.Model, maxIterations int) *agent.SequentialAgent {
	writer := agent.NewModelAgent("InitialWriterAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"Based on the user's prompt, write the first draft of a short story (around 100-150 words).\n" +
				"Output only the story text, with no introduction or explanation.")
		o.OutputKey = "current_story"
	})

	critic := agent.NewModelAgent("CriticAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"You are a constructive story critic. Review the story provided below.\n" +
				"Story: {current_story}\n\n" +
				"Evaluate the story's plot, characters, and pacing.\n" +
				"- If the story is well-written and complete, YOU MUST respond with the exact phrase: 'APPROVED'\n" +
				"- Otherwise, provide 2-3 specific, actionable suggestions for improvement.")
		o.OutputKey = "critique"
	})

	refiner := agent.NewModelAgent("RefinerAgent", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"You are a story refiner. You have a story draft and critique.\n\n" +
				"Story Draft: {current_story}\n" +
				"Critique: {critique}\n\n" +
				"Your task is to analyze the critique.\n" +
				"- IF the critique is EXACTLY 'APPROVED', you MUST call the exit_loop function and nothing else.\n" +
				"- OTHERWISE, rewrite the story draft to fully incorporate the feedback from the critique.")
		o.OutputKey = "current_story"
	})
	refiner.RegisterTool(tool.NewExitLoopTool())

	loop := agent.NewLoopAgent(
		"StoryRefinementLoop",
		[]core.Agent{critic, refiner},
		agent.WithMaxIterations(maxIterations),
	)

	return agent.NewSequentialAgent("StoryPipeline", writer, loop)
}

// NewResearchCoordinator builds a single coordinator agent that delegates to
// a researcher and a summarizer through agent tools instead of a fixed
// composer, letting the model decide the call order.
func NewResearchCoordinator(m model.Model) *agent.ModelAgent {
	researcher := agent.NewModelAgent("ResearchAgent", m, func(o *agent.ModelAgentOptions) {
		o.Description = "Finds 2-3 pieces of relevant information on a topic."
		o.Instruction = agent.NewInstructionFromText(
			"You are a specialized research agent. Your only job is to find 2-3 pieces of relevant " +
				"information on the given topic and present the findings with citations.")
		o.OutputKey = "research_findings"
	})

	summarizer := agent.NewModelAgent("SummarizerAgent", m, func(o *agent.ModelAgentOptions) {
		o.Description = "Summarizes research findings as a bulleted list."
		o.Instruction = agent.NewInstructionFromText(
			"Read the provided research findings: {research_findings}\n" +
				"Create a concise summary as a bulleted list with 3-5 key points.")
		o.OutputKey = "final_summary"
	})

	coordinator := agent.NewModelAgent("ResearchCoordinator", m, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(
			"You are a research coordinator. Your goal is to answer the user's query by orchestrating a workflow.\n" +
				"1. First, call the ResearchAgent tool to find relevant information.\n" +
				"2. Next, call the SummarizerAgent tool to create a concise summary.\n" +
				"3. Present the final summary clearly to the user as your response.")
	})
	coordinator.RegisterTools(tool.NewAgentTool(researcher), tool.NewAgentTool(summarizer))

	return coordinator
}
