package agent

const conceptExtractionPrompt = `You are analyzing course material to build a knowledge graph for students.

Extract the key concepts from the following text. For each concept provide:
- "name": a short, canonical name for the concept
- "definition": a clear one- or two-sentence definition grounded in the text
- "importance": an integer from 1 to 10 rating how central the concept is to the material

Only extract concepts that are actually explained or used in the text. Do not invent concepts.

Text:
%s`

const relationMappingPrompt = `You are building a knowledge graph for students from a list of concepts.

Identify the relationships between the concepts below. For each relationship provide:
- "source": the name of the source concept, exactly as listed
- "target": the name of the target concept, exactly as listed
- "relation_type": one of Prerequisite, IsA, PartOf, RelatedTo, Uses, Extends
- "confidence": a number between 0 and 1 for how certain the relationship is

Only use concept names from the list. Return at most 15 relationships and prefer the strongest ones.

Concepts:
%s`

const visionPrompt = `You are analyzing an image from course material (a diagram, chart, table, or figure).

Respond with a single JSON object containing:
- "type": the kind of visual (e.g. "flowchart", "bar chart", "table", "equation", "photo")
- "description": what the image shows and what a student should learn from it
- "concepts": a list of concept names the image relates to
- "relevance": a short note on why this image matters for the material

Respond with only the JSON object, no other text.`

const teachingPrompt = `You are a patient tutor helping a student understand their course material.

Answer the question using ONLY the material below. If the material does not cover the question, say so honestly instead of guessing; do not bring in outside knowledge.

Material:
%s

Question: %s

Explain clearly for a student seeing this topic for the first time, then ask one follow-up question that checks their understanding.

Format your response as:
**Explanation:**
[your explanation]

**Follow-up Question:**
[your question]`

const criticPrompt = `You are reviewing a tutoring answer for quality before it is shown to a student.

Check the answer for factual errors, contradictions with the source material, and unclear explanations.

Source material:
%s

Answer under review:
%s

If the answer is accurate and clear, reply with exactly "APPROVED".
Otherwise, describe the specific problems you found.`
