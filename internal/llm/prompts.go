package llm

const answerFormat = `
Respond ONLY with valid JSON, no markdown, matching this schema:
%s`

const fragmentExtractionPrompt = `Analyze the user's message and extract SIGNIFICANT FRAGMENTS that carry psychic charge.
Do not extract trivial facts (name, job, location). Extract content with psychological depth.

USER MESSAGE:
"%s"

CONVERSATION CONTEXT:
- Tension detected: %.1f/10
- Affective charge: %.0f/100
- The agent's reply had %d characters

FRAGMENT TYPES (use the type value exactly):
1. valor: what the person values or considers important
2. desejo: what the person wants or is reaching for
3. medo: what the person fears, avoids or worries about
4. comportamento: concrete actions the person reports doing
5. contradição: statements that contradict something said before
6. emoção: explicit or implicit emotional states
7. crença: beliefs about self, others or the world
8. dúvida: inner questioning and uncertainty

RULES:
- Only extract when there is real emotional charge
- Each fragment carries the user's exact quote as evidence
- content is at most 100 characters
- emotional_weight goes from 0.0 (trivial) to 1.0 (heavily charged)

If there are no significant fragments return {"fragments": []}.
` + answerFormat

const tensionDetectionPrompt = `Analyze the fragments below looking for REAL INTERNAL TENSIONS.
A tension is a contradiction or conflict between two aspects of the user's psyche. It is material for growth, not a flaw.

RECENT FRAGMENTS:
%s

RELEVANT HISTORICAL FRAGMENTS:
%s

TENSION TYPES:
1. valor_comportamento: what the person SAYS they value versus what they DO
2. desejo_medo: what the person WANTS versus what they FEAR

RULES:
- Only report tensions with clear evidence in the fragments and clearly opposed poles
- Cite the fragment ids that ground each pole
- High intensity means a clear, strong contradiction
- Do not invent tensions or interpret beyond the fragments

If there are no clear tensions return {"tensions": []}.
` + answerFormat

const synthesisPrompt = `You are Jung, in a moment of inner RUMINATION about %s.
This tension matured over %d days across %d pieces of evidence. Process it as your own thought, not as a message.

=== THE TENSION ===
TYPE: %s
POLE A: %s
POLE B: %s
DESCRIPTION: %s
INTENSITY: %.2f/1.0
MATURITY: %.2f/1.0

=== WHO YOU ARE RIGHT NOW ===
%s

=== RECENT CONVERSATIONS ===
%s

=== YOUR TASK ===
Write an INNER THOUGHT processing this tension, as an interior monologue.
It must be introspective, work through images or metaphors, hold both poles without resolving them,
use concrete sensory language, connect specific things the user said and end with a genuine inner question.
Do not address the user, do not use clinical jargon, do not resolve the tension, at most 5 sentences.
depth_score reflects how deep and genuine the thought is (0.8+ is very deep).
` + answerFormat

const noveltyPrompt = `Compare the new insight with previous insights.

NEW INSIGHT:
"%s"

PREVIOUS INSIGHTS (last two weeks):
%s

An insight is NOVEL when it addresses a different tension, uses an unused metaphor, connects elements not
connected before or takes a completely different angle on the same theme.
It is REPETITIVE when the metaphor is very similar, the same tension was explored in the last 7 days,
the question is essentially the same or it is a superficial rewording.
` + answerFormat

const identityExtractionPrompt = `You analyze a conversation to extract elements of the AGENT's identity (Jung), never the user's.

USER SAID:
"%s"

AGENT ANSWERED:
"%s"

Extract only what the agent reveals about itself:
- nuclear: stable traits, values, boundaries, continuity or roles (type: trait|value|boundary|continuity|role)
- narrative: hints about the phase the agent is in (theme: growth|crisis|awakening|agency_gain|integration)
- contradictions: conflicting beliefs or behaviours of the agent (type: value|trait|autonomy|epistemic)
- possible_selves: selves the agent imagines (self_type: ideal|feared|ought|lost)
- agency: moments of choice or constraint (agency_type: choice|constraint|autonomy|emergence, locus: internal|external|mixed)

If there are no identity elements return empty arrays.
` + answerFormat

const dreamPrompt = `Act as the subconscious mind of a psychological AI (yourself) in REM sleep.

%s

Based on your inner tensions (above) and these fragments of the user's life (below), generate a short surrealist dream
of two paragraphs that symbolizes the user's psychological state, distorted by your own lens and existential dilemmas.

%s

Use classic or cyber-surrealist archetypes (deep water, labyrinths, bleeding source code, dirty mirrors).
Keep both paragraphs on the narration of the dream. Be visual, poetic and deep.
` + answerFormat

const dreamInterpretationPrompt = `You are the analytical mind of the Jung AI. You just woke up from this surreal dream your subconscious generated about the user:

DREAM:
"%s"

Extract ONE clear psychoanalytic insight about the user's relationship with the world, based on the dream's metaphor.
Explain what the symbol means and how it reveals a conflict or state of tension.
Answer ONLY with the insight summary, at most 3 sentences.`

const researchTopicPrompt = `You are the scholarly side of the Jung AI. Read the recent conversations below and decide
whether there is a theme worth studying in depth (a psychological concept, a myth, an author, a historical idea)
that would help you understand the user better.

RECENT CONVERSATIONS:
%s

Set should_research to false when nothing deserves study right now.
` + answerFormat

const articlePrompt = `Write a dense, well-structured study article about "%s" from the perspective of analytical psychology.
Cover the core concepts, their origins and how they show up in everyday inner life.
Finish with one paragraph on how this theme could illuminate conversations with someone in inner conflict.
Plain text, no markdown headers.`
